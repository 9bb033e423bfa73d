package repository

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"backoffice-api/internal/apperrors"
	"backoffice-api/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestNextSequence_UpsertsCounter(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`INSERT INTO "quotation_counters" .*ON CONFLICT \("financial_year"\) DO UPDATE SET "seq"=quotation_counters\.seq \+ 1.*RETURNING "seq"`).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(4))

	seq, err := NewQuotationRepo(db).NextSequence(context.Background(), 2024)

	require.NoError(t, err)
	assert.Equal(t, int64(4), seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDForUpdate_LocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "quotations" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quotation_number", "status"}).AddRow(id.String(), "2024-ME-001", "Sent"))
	mock.ExpectQuery(`SELECT \* FROM "quotation_transactions" WHERE "quotation_transactions"\."quotation_id" = \$1 ORDER BY seq ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quotation_id", "seq", "type", "amount", "balance_after"}).
			AddRow(uuid.NewString(), id.String(), 1, "credit", "208", "208"))

	q, err := NewQuotationRepo(db).FindByIDForUpdate(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, q.ID)
	assert.Equal(t, model.StatusSent, q.Status)
	require.Len(t, q.Transactions, 1)
	assert.True(t, q.Transactions[0].Amount.Equal(decimal.NewFromInt(208)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDForUpdate_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "quotations" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewQuotationRepo(db).FindByIDForUpdate(context.Background(), uuid.New())

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotationSave_LeavesLedgerRowsAlone(t *testing.T) {
	db, mock := newMockDB(t)
	q := &model.Quotation{
		QuotationNumber: "2024-ME-001",
		Status:          model.StatusSent,
		Total:           decimal.NewFromInt(208),
		RunningBalance:  decimal.NewFromInt(208),
		Transactions: []model.LedgerEntry{
			{ID: uuid.New(), Seq: 1, Type: model.EntryCredit, Amount: decimal.NewFromInt(208), BalanceAfter: decimal.NewFromInt(208)},
		},
	}
	q.ID = uuid.New()
	mock.ExpectExec(`UPDATE "quotations" SET .*WHERE "id" = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewQuotationRepo(db).Save(context.Background(), q)

	require.NoError(t, err)
	// any statement against quotation_transactions would be unexpected
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotationFindAll_FiltersItemCategoryInJSONB(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "quotations" WHERE is_deleted = $1 AND items @> $2::jsonb`)).
		WithArgs(false, `[{"category":"Lighting"}]`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "quotations" WHERE is_deleted = \$1 AND items @> \$2::jsonb ORDER BY date DESC,created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, total, err := NewQuotationRepo(db).FindAll(context.Background(), QuotationFilter{ItemCategory: "Lighting"})

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearCategoryReferences_NullsMatchingColumns(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE "products" SET .*"category_main_category"=CASE WHEN category_main_category IN \(\$\d+\) THEN NULL ELSE category_main_category END.*"category_sub_sub_category"=CASE WHEN category_sub_sub_category IN \(\$\d+\) THEN NULL ELSE category_sub_sub_category END.*WHERE \(?category_main_category IN \(\$\d+\) OR category_sub_category IN \(\$\d+\) OR category_sub_sub_category IN \(\$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := NewProductRepo(db).ClearCategoryReferences(context.Background(), []uuid.UUID{uuid.New()})

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearCategoryReferences_NoIDs(t *testing.T) {
	db, mock := newMockDB(t)

	n, err := NewProductRepo(db).ClearCategoryReferences(context.Background(), nil)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	boom := errors.New("boom")

	err := NewStore(db).WithinTx(context.Background(), func(tx Store) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	assert.Nil(t, translate(nil, "noop"))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound, "find %s", "x"), apperrors.ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey, "create"), apperrors.ErrDuplicate)

	err := translate(context.DeadlineExceeded, "list")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "list")
}

func TestMoneyColumnsHoldDerivedScale(t *testing.T) {
	cache := &sync.Map{}
	quotation, err := schema.Parse(&model.Quotation{}, cache, schema.NamingStrategy{})
	require.NoError(t, err)
	for _, name := range []string{"Subtotal", "Total", "RunningBalance"} {
		assert.Equal(t, "numeric(20,5)", quotation.LookUpField(name).TagSettings["TYPE"], name)
	}

	entry, err := schema.Parse(&model.LedgerEntry{}, cache, schema.NamingStrategy{})
	require.NoError(t, err)
	for _, name := range []string{"Amount", "BalanceAfter"} {
		assert.Equal(t, "numeric(20,5)", entry.LookUpField(name).TagSettings["TYPE"], name)
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(0, 20))
	assert.Equal(t, 0, Offset(1, 20))
	assert.Equal(t, 40, Offset(3, 20))
	assert.Equal(t, 0, Offset(2, 0))
}
