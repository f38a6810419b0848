package fulfillment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDecoder() Decoder {
	return Decoder{OrderTopic: testOrderTopic, ReviewTopic: testReviewTopic}
}

func TestDecoder_OrderIntent(t *testing.T) {
	payload := []byte(`{"UserId":7,"ProductId":1,"Quantity":3,"ShippingAddress":"1 Main St"}`)

	env, err := testDecoder().Decode(testOrderTopic, payload)

	require.NoError(t, err)
	assert.Equal(t, KindOrderIntent, env.Kind)
	require.NotNil(t, env.Order)
	assert.Equal(t, 7, env.Order.UserID)
	assert.Equal(t, 1, env.Order.ProductID)
	assert.Equal(t, 3, env.Order.Quantity)
	assert.Equal(t, "1 Main St", env.Order.ShippingAddress)
}

func TestDecoder_ReviewEvent(t *testing.T) {
	payload := []byte(`{"Type":"ReviewAdded","ProductId":1,"Rating":5}`)

	env, err := testDecoder().Decode(testReviewTopic, payload)

	require.NoError(t, err)
	assert.Equal(t, KindReview, env.Kind)
	require.NotNil(t, env.Review)
	assert.Equal(t, 1, env.Review.ProductID)
	assert.Equal(t, 5, env.Review.Rating)
}

func TestDecoder_StockRestore(t *testing.T) {
	payload := []byte(`{"Type":"StockRestore","ProductId":1,"Quantity":3}`)

	env, err := testDecoder().Decode(testOrderTopic, payload)

	require.NoError(t, err)
	assert.Equal(t, KindStockRestore, env.Kind)
	require.NotNil(t, env.Restore)
	assert.Equal(t, 1, env.Restore.ProductID)
	assert.Equal(t, 3, env.Restore.Quantity)
}

func TestDecoder_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
	}{
		{"invalid json on order topic", testOrderTopic, `{not json`},
		{"invalid json on review topic", testReviewTopic, `{not json`},
		{"zero quantity intent", testOrderTopic, `{"UserId":7,"ProductId":1,"Quantity":0}`},
		{"negative quantity intent", testOrderTopic, `{"UserId":7,"ProductId":1,"Quantity":-2}`},
		{"missing product id intent", testOrderTopic, `{"UserId":7,"Quantity":3}`},
		{"missing product id review", testReviewTopic, `{"Type":"ReviewAdded","Rating":5}`},
		{"missing type tag review", testReviewTopic, `{"ProductId":1,"Rating":5}`},
		{"wrong type tag review", testReviewTopic, `{"Type":"StockRestore","ProductId":1,"Rating":5}`},
		{"restore without quantity", testOrderTopic, `{"Type":"StockRestore","ProductId":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testDecoder().Decode(tt.topic, []byte(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestDecoder_UnknownTopic(t *testing.T) {
	_, err := testDecoder().Decode("some-other-topic", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownTopic)
}
