package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus/infras/otel"
	"campus/infras/postgres"
	"campus/internal/domains/equipment/model"
	"campus/shared/constant"
	gDto "campus/shared/dto"
	"campus/shared/logger"
	gRepo "campus/shared/repository"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrEquipmentGone is returned when the equipment row disappeared between
	// the service precondition check and the occupancy transaction.
	ErrEquipmentGone = errors.New("equipment no longer exists")

	// ErrAlreadyInUse is returned when someone holds the equipment.
	ErrAlreadyInUse = errors.New("equipment is already in use")

	// ErrNotInUse is returned when the equipment is free and there is nothing
	// to end.
	ErrNotInUse = errors.New("equipment is not in use")

	// ErrNoActiveUsage is returned when the occupancy flag is set but the
	// caller has no open usage record. The flag and the records drifted, or
	// someone else holds the equipment.
	ErrNoActiveUsage = errors.New("no active usage record found")
)

const (
	setOccupiedQuery = `UPDATE equipment SET is_occupied = $2, modified_at = $3, modified_by = $4 WHERE id = $1`

	openRecordQuery = `SELECT id FROM equipment_usage_records
		WHERE equipment_id = $1 AND user_id = $2 AND ended_at IS NULL
		ORDER BY started_at DESC LIMIT 1`

	closeRecordQuery = `UPDATE equipment_usage_records
		SET ended_at = $2, modified_at = $2, modified_by = $3 WHERE id = $1`
)

type Equipment interface {
	Insert(ctx context.Context, model model.Equipment) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Equipment, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Equipment, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	BeginUse(ctx context.Context, record model.UsageRecord) error
	EndUse(ctx context.Context, equipmentID, userID string, endedAt time.Time) error
	GetUsages(ctx context.Context, equipmentID string) ([]model.UsageRecord, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Equipment]
	usage gRepo.Repository[model.UsageRecord]
	db    *postgres.Connection
	otel  otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Equipment {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Equipment](model.EntityName, model.TableName, model.FieldID, db, otel),
		usage:      gRepo.NewRepository[model.UsageRecord](model.UsageEntityName, model.UsageTableName, model.FieldUsageID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func lockFilter(id string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldID,
				Operator: gDto.FilterOperatorEq,
				Value:    id,
				Table:    model.TableName,
			},
		},
	}
}

// BeginUse flips the occupancy flag and opens a usage record in one
// transaction holding a lock on the equipment row, so concurrent takers
// serialize and exactly one of them wins.
func (repo *repositoryImpl) BeginUse(ctx context.Context, record model.UsageRecord) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".equipment.BeginUse")
	defer scope.End()

	err := repo.db.Transact(ctx, func(tx *sqlx.Tx) error {
		equipment, err := repo.GetForUpdateTx(ctx, tx, lockFilter(record.EquipmentID))
		if err != nil {
			return fmt.Errorf("failed to lock equipment: %w", err)
		}

		if equipment.ID == constant.Empty {
			return ErrEquipmentGone
		}

		if equipment.IsOccupied {
			return ErrAlreadyInUse
		}

		if _, err := tx.ExecContext(ctx, setOccupiedQuery, record.EquipmentID, true, record.ModifiedAt, record.UserID); err != nil {
			logger.ErrorWithStack(err)

			return fmt.Errorf("failed to set occupancy flag: %w", err)
		}

		return repo.usage.InsertTx(ctx, tx, record)
	})

	if err != nil {
		scope.TraceError(err)
	}

	return err
}

// EndUse closes the caller's newest open usage record and clears the
// occupancy flag in one transaction. A set flag without an open record for
// the caller is reported as ErrNoActiveUsage rather than silently repaired.
func (repo *repositoryImpl) EndUse(ctx context.Context, equipmentID, userID string, endedAt time.Time) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".equipment.EndUse")
	defer scope.End()

	err := repo.db.Transact(ctx, func(tx *sqlx.Tx) error {
		equipment, err := repo.GetForUpdateTx(ctx, tx, lockFilter(equipmentID))
		if err != nil {
			return fmt.Errorf("failed to lock equipment: %w", err)
		}

		if equipment.ID == constant.Empty {
			return ErrEquipmentGone
		}

		if !equipment.IsOccupied {
			return ErrNotInUse
		}

		var recordID string

		err = tx.GetContext(ctx, &recordID, openRecordQuery, equipmentID, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoActiveUsage
		}

		if err != nil {
			logger.ErrorWithStack(err)

			return fmt.Errorf("failed to find open usage record: %w", err)
		}

		if _, err := tx.ExecContext(ctx, closeRecordQuery, recordID, endedAt, userID); err != nil {
			logger.ErrorWithStack(err)

			return fmt.Errorf("failed to close usage record: %w", err)
		}

		if _, err := tx.ExecContext(ctx, setOccupiedQuery, equipmentID, false, endedAt, userID); err != nil {
			logger.ErrorWithStack(err)

			return fmt.Errorf("failed to clear occupancy flag: %w", err)
		}

		return nil
	})

	if err != nil {
		scope.TraceError(err)
	}

	return err
}

func (repo *repositoryImpl) GetUsages(ctx context.Context, equipmentID string) ([]model.UsageRecord, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".equipment.GetUsages")
	defer scope.End()

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldUsageEquipmentID,
				Operator: gDto.FilterOperatorEq,
				Value:    equipmentID,
				Table:    model.UsageTableName,
			},
		},
	}

	params := gDto.QueryParams{
		SortBy:  model.FieldUsageStartedAt,
		SortDir: constant.SortDescending,
	}

	return repo.usage.GetAll(ctx, params, filter) //nolint:wrapcheck
}
