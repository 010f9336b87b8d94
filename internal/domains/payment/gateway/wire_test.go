package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roastery-backend/internal/domains/payment/model"
)

func TestParseNotification(t *testing.T) {
	t.Run("intent succeeded", func(t *testing.T) {
		n, err := ParseNotification([]byte(`{"id":"evt_1","type":"payment_intent.succeeded","created":1700000000,
			"data":{"object":{"id":"pi_1","object":"payment_intent","amount":4999,"currency":"aed","status":"succeeded",
			"metadata":{"source":"roastery"},"payment_method_types":["card"],"latest_charge":"ch_1"}}}`))
		require.NoError(t, err)
		require.NotNil(t, n.Intent)
		assert.Equal(t, "evt_1", n.EventID)
		assert.Equal(t, "pi_1", n.IntentID())
		assert.Equal(t, int64(4999), n.Intent.Amount)
		assert.Equal(t, "ch_1", n.Intent.ChargeID)
		assert.Equal(t, "card", n.Intent.Method)
		assert.Equal(t, "roastery", n.Intent.Metadata["source"])
	})

	t.Run("charge refunded", func(t *testing.T) {
		n, err := ParseNotification([]byte(`{"id":"evt_2","type":"charge.refunded",
			"data":{"object":{"id":"ch_1","object":"charge","payment_intent":"pi_1","amount":4999,"amount_refunded":4999,"refunded":true}}}`))
		require.NoError(t, err)
		require.NotNil(t, n.Charge)
		assert.Equal(t, "pi_1", n.IntentID())
		assert.True(t, n.Charge.Refunded)
	})

	t.Run("other type needs no object", func(t *testing.T) {
		n, err := ParseNotification([]byte(`{"id":"evt_3","type":"customer.created","data":{"object":{"id":"cus_1"}}}`))
		require.NoError(t, err)
		assert.Empty(t, n.IntentID())
	})

	malformed := map[string]string{
		"not json":              `{{`,
		"no id":                 `{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`,
		"intent object absent":  `{"id":"evt_4","type":"payment_intent.succeeded","data":{}}`,
		"intent null":           `{"id":"evt_4","type":"payment_intent.succeeded","data":{"object":null}}`,
		"wrong object":          `{"id":"evt_4","type":"payment_intent.succeeded","data":{"object":{"id":"ch_1","object":"charge"}}}`,
		"charge without intent": `{"id":"evt_5","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`,
	}
	for name, body := range malformed {
		t.Run(name, func(t *testing.T) {
			_, err := ParseNotification([]byte(body))
			assert.ErrorIs(t, err, model.ErrMalformedNotification)
		})
	}
}
