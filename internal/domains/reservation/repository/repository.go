package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campus/infras/otel"
	"campus/infras/postgres"
	"campus/internal/domains/reservation/model"
	"campus/shared/constant"
	gDto "campus/shared/dto"
	"campus/shared/logger"
	gRepo "campus/shared/repository"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	// ErrSlotTaken is returned when the requested window overlaps an
	// existing reservation on the same facility.
	ErrSlotTaken = errors.New("facility already reserved for an overlapping window")

	// ErrFacilityGone is returned when the facility row disappeared between
	// the service precondition check and the reservation transaction.
	ErrFacilityGone = errors.New("facility no longer exists")
)

const (
	lockFacilityQuery = `SELECT id FROM facilities WHERE id = $1 FOR UPDATE`

	overlapExistsQuery = `SELECT EXISTS(
		SELECT 1 FROM facility_reservations
		WHERE facility_id = $1 AND start_time < $3 AND end_time > $2
	)`
)

type Reservation interface {
	Reserve(ctx context.Context, reservation model.Reservation) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Reservation, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Reservation, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Reservation]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Reservation {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Reservation](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// Reserve inserts the reservation if and only if no stored reservation on the
// same facility overlaps its half-open window. The conflict check and the
// insert run in one transaction holding a lock on the facility row, so two
// overlapping requests serialize and exactly one of them wins. The exclusion
// constraint on facility_reservations backs the same rule in the schema.
func (repo *repositoryImpl) Reserve(ctx context.Context, reservation model.Reservation) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.Reserve")
	defer scope.End()

	err := repo.db.Transact(ctx, func(tx *sqlx.Tx) error {
		var facilityID string

		err := tx.GetContext(ctx, &facilityID, lockFacilityQuery, reservation.FacilityID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFacilityGone
		}

		if err != nil {
			logger.ErrorWithStack(err)

			return fmt.Errorf("failed to lock facility: %w", err)
		}

		var conflict bool

		err = tx.GetContext(ctx, &conflict, overlapExistsQuery, reservation.FacilityID, reservation.StartTime, reservation.EndTime)
		if err != nil {
			logger.ErrorWithStack(err)

			return fmt.Errorf("failed to check reservation conflicts: %w", err)
		}

		if conflict {
			return ErrSlotTaken
		}

		return repo.InsertTx(ctx, tx, reservation)
	})

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == constant.PqErrorCodeExclusionViolation {
		return ErrSlotTaken
	}

	if err != nil {
		scope.TraceError(err)
	}

	return err
}
