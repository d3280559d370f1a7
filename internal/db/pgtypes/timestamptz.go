// Package pgtypes converts between Go values and the pgx types used by the
// generated query code.
package pgtypes

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Timestamptz converts an optional time into a pgtype.Timestamptz.
// A nil time becomes SQL NULL.
func Timestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

// At converts a required time into a pgtype.Timestamptz
func At(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

// TimePtr converts a pgtype.Timestamptz back into an optional UTC time
func TimePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}
