package database

import "github.com/koustreak/schemadiff/internal/errs"

// Collect drains rows through scan and closes them. The result set is fully
// consumed before returning so the caller can issue the next statement on
// the same transaction.
//
// The returned slice is nil on zero rows.
func Collect[T any](rows Rows, scan func(Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, wrapScan(err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapScan(err)
	}
	return out, nil
}

// CollectStrings is Collect for single text column result sets.
func CollectStrings(rows Rows) ([]string, error) {
	return Collect(rows, func(r Rows) (string, error) {
		var s string
		err := r.Scan(&s)
		return s, err
	})
}

func wrapScan(err error) error {
	if errs.KindOf(err) != errs.ErrKindUnknown {
		return err
	}
	return errs.Wrap(errs.ErrKindQueryFailed, "failed to read rows", err)
}
