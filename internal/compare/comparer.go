// Package compare runs every registered inspector against two databases and
// collects the per-inspector diffs into a Result.
package compare

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/database/connect"
	"github.com/koustreak/schemadiff/internal/diff"
	"github.com/koustreak/schemadiff/internal/errs"
	"github.com/koustreak/schemadiff/internal/ignore"
	"github.com/koustreak/schemadiff/internal/inspection"
	"github.com/koustreak/schemadiff/internal/logger"
)

// Options selects what a single comparison looks at.
type Options struct {
	// OneAlias and TwoAlias label the two sides in the output.
	// They default to "one" and "two".
	OneAlias string
	TwoAlias string

	// Ignores are ignore clauses such as "employees.columns.age".
	Ignores []string

	// IgnoreInspectors are inspector keys that are skipped entirely.
	IgnoreInspectors []string
}

// Comparer compares the schemas behind two database handles.
type Comparer struct {
	one, two database.DB
	registry *inspection.Registry
	parser   ignore.Parser
	log      *logger.Logger
	owned    bool
}

// Option configures a Comparer.
type Option func(*Comparer)

// WithRegistry replaces the default inspector registry.
func WithRegistry(r *inspection.Registry) Option {
	return func(c *Comparer) { c.registry = r }
}

// WithLogger sets the logger used for warnings and debug events.
func WithLogger(l *logger.Logger) Option {
	return func(c *Comparer) { c.log = l }
}

// WithSeparator changes the ignore clause separator.
func WithSeparator(sep string) Option {
	return func(c *Comparer) { c.parser.Separator = sep }
}

// New returns a Comparer over two open handles. The caller keeps ownership
// of the handles.
func New(one, two database.DB, opts ...Option) *Comparer {
	c := &Comparer{
		one:      one,
		two:      two,
		registry: inspection.Default,
		parser:   ignore.NewParser(),
		log:      logger.Global(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open connects to both databases. Close releases them.
func Open(ctx context.Context, one, two *database.Config, opts ...Option) (*Comparer, error) {
	dbOne, err := connect.Open(ctx, one)
	if err != nil {
		return nil, fmt.Errorf("open first database: %w", err)
	}
	dbTwo, err := connect.Open(ctx, two)
	if err != nil {
		dbOne.Close()
		return nil, fmt.Errorf("open second database: %w", err)
	}

	c := New(dbOne, dbTwo, opts...)
	c.owned = true
	return c, nil
}

// Close closes both handles if the Comparer opened them.
func (c *Comparer) Close() {
	if !c.owned {
		return
	}
	c.one.Close()
	c.two.Close()
}

// Registry returns the inspectors this Comparer runs.
func (c *Comparer) Registry() *inspection.Registry {
	return c.registry
}

// Compare inspects both databases inside read-only transactions and diffs
// every inspector that is not skipped.
func (c *Comparer) Compare(ctx context.Context, opts Options) (*Result, error) {
	aliases := diff.Aliases{One: opts.OneAlias, Two: opts.TwoAlias}
	if aliases.One == "" {
		aliases.One = diff.DefaultAliases().One
	}
	if aliases.Two == "" {
		aliases.Two = diff.DefaultAliases().Two
	}
	if err := aliases.Validate(); err != nil {
		return nil, err
	}

	specs, err := c.parser.Parse(c.registry, opts.Ignores)
	if err != nil {
		return nil, err
	}
	skip, err := c.skipped(opts.IgnoreInspectors)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := c.log.With().Str("run_id", runID).Logger()

	txOne, err := c.one.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin on %s: %w", c.one.Name(), err)
	}
	defer rollback(ctx, log, txOne)

	txTwo, err := c.two.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin on %s: %w", c.two.Name(), err)
	}
	defer rollback(ctx, log, txTwo)

	facets := make(map[string]diff.Facet)
	for _, in := range c.registry.All() {
		if skip[in.Key()] {
			log.Debugf("skipping inspector %s", in.Key())
			continue
		}

		facet, ok, err := c.run(ctx, log, in, specs, aliases, txOne, txTwo)
		if err != nil {
			return nil, err
		}
		if ok {
			facets[in.Key()] = facet
		}
	}

	return newResult(runID, aliases, facets), nil
}

// run inspects both sides with in. ok is false when either side does not
// support the inspector.
func (c *Comparer) run(ctx context.Context, log *logger.Logger, in inspection.Inspector, specs []ignore.Spec,
	aliases diff.Aliases, one, two database.Conn) (facet diff.Facet, ok bool, err error) {
	snaps := make([]inspection.Snapshot, 2)
	supported := true

	for i, conn := range []database.Conn{one, two} {
		snap, err := in.Inspect(ctx, conn, specs)
		switch {
		case err == nil:
			snaps[i] = snap
		case errs.IsNotSupported(err):
			log.WarnWith("inspector not supported", err, map[string]any{
				"connection": conn.Name(),
				"inspector":  in.Key(),
			})
			supported = false
		default:
			return nil, false, fmt.Errorf("inspect %s on %s: %w", in.Key(), conn.Name(), err)
		}
	}
	if !supported {
		return nil, false, nil
	}

	facet, err = in.Diff(snaps[0], snaps[1], aliases)
	if err != nil {
		return nil, false, err
	}
	log.Debugf("inspector %s done", in.Key())
	return facet, true, nil
}

func (c *Comparer) skipped(keys []string) (map[string]bool, error) {
	skip := make(map[string]bool, len(keys))
	var unknown []string
	for _, k := range keys {
		if !c.registry.Has(k) {
			unknown = append(unknown, k)
			continue
		}
		skip[k] = true
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		unknown = slices.Compact(unknown)
		return nil, errs.Newf(errs.ErrKindUnknownInspector, "unknown inspector: %s", strings.Join(unknown, ", "))
	}
	return skip, nil
}

func rollback(ctx context.Context, log *logger.Logger, tx database.Tx) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		log.WarnWith("rollback failed", err, map[string]any{"connection": tx.Name()})
	}
}
