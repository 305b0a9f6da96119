package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/haulquote/internal/db"
	"github.com/erazemk/haulquote/internal/model"
)

func floatPtr(f float64) *float64 { return &f }

func createQuote(t *testing.T, database *sql.DB, name string) *model.Quote {
	t.Helper()
	q, err := CreateQuote(context.Background(), database, NewQuote{CustomerName: name, Pricing: model.DefaultPricing()})
	require.NoError(t, err)
	return q
}

func createItem(t *testing.T, database *sql.DB, quoteID, name string) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, quoteID, NewItem{
		Name: name, Yuan: 100, Type: model.ItemTypeTee, Include: true,
	})
	require.NoError(t, err)
	require.NotNil(t, item)
	return item
}

func TestCreateAndGetQuote(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	q, err := CreateQuote(ctx, database, NewQuote{
		CustomerName:   "Mei",
		CustomerHandle: "@mei",
		OrderID:        "A-1",
		Notes:          "rush",
		Pricing:        model.Pricing{ExchangeRate: 7.2, FixedFeeUSD: 1, ShippingPerKgUSD: 11, InsuranceRate: 0.05, HaulFeeUSD: 12},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, q.ID)
	assert.Equal(t, model.QuoteStatusDraft, q.Status)
	assert.Equal(t, 7.2, q.ExchangeRate)
	assert.Equal(t, 12.0, q.HaulFeeUSD)
	assert.Empty(t, q.Items)
	assert.NotNil(t, q.Items)
	assert.False(t, q.CreatedAt.IsZero())

	got, err := GetQuote(ctx, database, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q, got)

	missing, err := GetQuote(ctx, database, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateQuoteUnknownCustomer(t *testing.T) {
	database := db.NewTestDB(t)
	_, err := CreateQuote(context.Background(), database, NewQuote{CustomerID: strPtr("ghost"), Pricing: model.DefaultPricing()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListQuotesSearchAndOrder(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first := createQuote(t, database, "Alice Wong")
	second := createQuote(t, database, "Bob")
	_, err := UpdateQuote(ctx, database, second.ID, QuoteUpdate{OrderID: strPtr("WD-100%")})
	require.NoError(t, err)
	createItem(t, database, first.ID, "Tee")

	all, err := ListQuotes(ctx, database, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID, "touched by the new item")
	assert.Len(t, all[0].Items, 1)

	byName, err := ListQuotes(ctx, database, "alice")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, first.ID, byName[0].ID)

	byOrder, err := ListQuotes(ctx, database, "100%")
	require.NoError(t, err)
	require.Len(t, byOrder, 1)
	assert.Equal(t, second.ID, byOrder[0].ID)

	none, err := ListQuotes(ctx, database, "_")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateQuotePartial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c, err := CreateCustomer(ctx, database, "Linked", "")
	require.NoError(t, err)
	q := createQuote(t, database, "Mei")

	status := model.QuoteStatusPaid
	got, err := UpdateQuote(ctx, database, q.ID, QuoteUpdate{
		Status:       &status,
		ExchangeRate: floatPtr(6.9),
		CustomerID:   model.NullableOf(c.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, model.QuoteStatusPaid, got.Status)
	assert.Equal(t, 6.9, got.ExchangeRate)
	assert.Equal(t, "Mei", got.CustomerName)
	assert.Equal(t, q.HaulFeeUSD, got.HaulFeeUSD)
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, c.ID, *got.CustomerID)

	got, err = UpdateQuote(ctx, database, q.ID, QuoteUpdate{CustomerID: model.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, got.CustomerID)

	_, err = UpdateQuote(ctx, database, q.ID, QuoteUpdate{CustomerID: model.NullableOf("ghost")})
	assert.ErrorIs(t, err, ErrNotFound)

	missing, err := UpdateQuote(ctx, database, "nope", QuoteUpdate{Notes: strPtr("x")})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteQuoteCascadesItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	q := createQuote(t, database, "Mei")
	item := createItem(t, database, q.ID, "Tee")

	require.NoError(t, DeleteQuote(ctx, database, q.ID))
	assert.ErrorIs(t, DeleteQuote(ctx, database, q.ID), ErrNotFound)

	got, err := GetItem(ctx, database, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDuplicateQuote(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	q := createQuote(t, database, "Mei")
	status := model.QuoteStatusShipped
	_, err := UpdateQuote(ctx, database, q.ID, QuoteUpdate{Status: &status, Notes: strPtr("fragile"), HaulFeeUSD: floatPtr(15)})
	require.NoError(t, err)
	a := createItem(t, database, q.ID, "A")
	b := createItem(t, database, q.ID, "B")
	_, err = UpdateItem(ctx, database, b.ID, ItemUpdate{
		WeightGrams: model.NullableOf(420.0),
		Status:      model.NullableOf(model.ItemStatusArrived),
	})
	require.NoError(t, err)
	require.NoError(t, SetItemImage(ctx, database, a.ID, []byte{0xff, 0xd8}, "image/jpeg"))

	dup, err := DuplicateQuote(ctx, database, q.ID)
	require.NoError(t, err)
	require.NotNil(t, dup)

	assert.NotEqual(t, q.ID, dup.ID)
	assert.Equal(t, "Mei (Copy)", dup.CustomerName)
	assert.Equal(t, model.QuoteStatusDraft, dup.Status)
	assert.Equal(t, "fragile", dup.Notes)
	assert.Equal(t, 15.0, dup.HaulFeeUSD)
	require.Len(t, dup.Items, 2)
	assert.Equal(t, "A", dup.Items[0].Name)
	assert.True(t, dup.Items[0].HasImage)
	assert.NotEqual(t, a.ID, dup.Items[0].ID)
	assert.Equal(t, dup.ID, dup.Items[1].QuoteID)
	require.NotNil(t, dup.Items[1].WeightGrams)
	assert.Equal(t, 420.0, *dup.Items[1].WeightGrams)
	assert.Equal(t, model.ItemStatusArrived, dup.Items[1].Status)

	src, err := GetQuote(ctx, database, q.ID)
	require.NoError(t, err)
	assert.Len(t, src.Items, 2)

	missing, err := DuplicateQuote(ctx, database, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
