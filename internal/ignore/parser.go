package ignore

import (
	"strings"

	"github.com/koustreak/schemadiff/internal/errs"
)

// DefaultSeparator splits the segments of a raw rule.
const DefaultSeparator = "."

// enumsKeyword is the reserved first segment of the two-segment form.
const enumsKeyword = "enums"

// KeySet is the view of the inspector registry the parser needs.
type KeySet interface {
	Has(key string) bool
}

// Parser turns raw rule strings into Specs.
type Parser struct {
	Separator string
}

// NewParser returns a parser using DefaultSeparator.
func NewParser() Parser {
	return Parser{Separator: DefaultSeparator}
}

// Parse converts every raw rule, failing on the first invalid one. Empty or
// nil input yields an empty, non-nil slice.
func (p Parser) Parse(keys KeySet, raw []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(raw))
	for _, r := range raw {
		s, err := p.parseOne(keys, r)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

func (p Parser) parseOne(keys KeySet, raw string) (Spec, error) {
	parts := p.split(raw)

	switch {
	case len(parts) == 1:
		return TableSpec{Table: parts[0]}, nil
	case len(parts) == 2 && parts[0] == enumsKeyword:
		return EnumSpec{Name: parts[1]}, nil
	case len(parts) == 3:
		if keys == nil || !keys.Has(parts[1]) {
			return nil, errs.Newf(errs.ErrKindUnknownInspector,
				"invalid ignore clause, no inspector found: %q", raw)
		}
		return TableSpec{Table: parts[0], InspectorKey: parts[1], ObjectName: parts[2]}, nil
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "invalid ignore clause format: %q", raw)
	}
}

func (p Parser) split(raw string) []string {
	sep := p.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	var parts []string
	for _, seg := range strings.Split(raw, sep) {
		if seg = strings.TrimSpace(seg); seg != "" {
			parts = append(parts, seg)
		}
	}
	return parts
}
