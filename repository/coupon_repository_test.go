package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"pricing-service/models"
	"pricing-service/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestCreate_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "coupons"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
	mock.ExpectCommit()

	coupon := &models.Coupon{
		Code:      "WELCOME10",
		Type:      models.CouponTypePercentage,
		Value:     decimal.NewFromInt(10),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		Active:    true,
	}
	require.NoError(t, repo.Create(context.Background(), coupon))
	assert.Equal(t, id, coupon.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByCode_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "code", "type", "value", "max_discount", "min_order_value",
		"usage_limit", "used_count", "expires_at", "active", "created_at", "updated_at"}).
		AddRow(uuid.New(), "WELCOME10", "percentage", "10.00", "25.00", "50.00", 100, 3, now.Add(time.Hour), true, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "coupons"`)).
		WillReturnRows(rows)

	c, err := repo.FindByCode(context.Background(), "WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", c.Code)
	assert.Equal(t, models.CouponTypePercentage, c.Type)
	assert.Equal(t, "25.00", c.MaxDiscount.StringFixed(2))
	assert.Equal(t, 3, c.UsedCount)
}

func TestFindByCode_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "coupons"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	c, err := repo.FindByCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, repository.ErrCouponNotFound)
	assert.Nil(t, c)
}

func TestFindByCode_DBError(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCouponRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "coupons"`)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByCode(context.Background(), "WELCOME10")
	require.Error(t, err)
	assert.False(t, errors.Is(err, repository.ErrCouponNotFound))
}

func TestIncrementUsedCount(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"incremented", 1, nil},
		{"limit reached or missing", 0, repository.ErrCouponNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock := setupMockDB(t)
			repo := repository.NewGormCouponRepository(gormDB)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "coupons"`)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			mock.ExpectCommit()

			err := repo.IncrementUsedCount(context.Background(), "WELCOME10")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
