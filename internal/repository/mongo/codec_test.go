package mongo

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type codecDoc struct {
	ID     uuid.UUID       `bson:"_id"`
	Parent *uuid.UUID      `bson:"parent"`
	Amount decimal.Decimal `bson:"amount"`
}

func TestRegistry_StoresUUIDAsStringAndDecimalAs128(t *testing.T) {
	reg := NewRegistry()
	id := uuid.New()

	raw, err := bson.MarshalWithRegistry(reg, codecDoc{ID: id, Amount: decimal.RequireFromString("208.50")})
	require.NoError(t, err)

	var generic bson.M
	require.NoError(t, bson.Unmarshal(raw, &generic))
	assert.Equal(t, id.String(), generic["_id"])
	assert.Nil(t, generic["parent"])
	_, isDecimal := generic["amount"].(primitive.Decimal128)
	assert.True(t, isDecimal)

	var back codecDoc
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &back))
	assert.Equal(t, id, back.ID)
	assert.Nil(t, back.Parent)
	assert.True(t, back.Amount.Equal(decimal.RequireFromString("208.5")))
}

func TestRegistry_DecodesLegacyNumbers(t *testing.T) {
	reg := NewRegistry()

	raw, err := bson.Marshal(bson.M{"_id": uuid.Nil.String(), "amount": 12.5})
	require.NoError(t, err)

	var doc codecDoc
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &doc))
	assert.True(t, doc.Amount.Equal(decimal.RequireFromString("12.5")))

	raw, err = bson.Marshal(bson.M{"_id": uuid.Nil.String(), "amount": int32(7)})
	require.NoError(t, err)
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &doc))
	assert.True(t, doc.Amount.Equal(decimal.NewFromInt(7)))
}
