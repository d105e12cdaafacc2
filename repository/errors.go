package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"salonpro-scheduler/scheduling"
)

const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"

	templateKindIndex = "idx_template_branch_kind"
)

// translate maps driver errors onto scheduling error kinds. what names the
// record for not-found messages.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return scheduling.NotFound("%s not found", what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return scheduling.Conflict("the requested time overlaps an existing appointment").
				Arg("constraint", pgErr.ConstraintName).Wrap(err)
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case waitlistActiveIndex:
				return scheduling.NewError(scheduling.ErrDuplicateWaitlistEntry,
					"customer already has an active waitlist entry for this staff member and date").Wrap(err)
			case templateKindIndex:
				return scheduling.Conflict("a template for this kind already exists").Wrap(err)
			}
		}
	}
	return err
}
