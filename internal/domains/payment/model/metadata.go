package model

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	orderModel "roastery-backend/internal/domains/order/model"
)

// CheckoutSnapshot là giỏ hàng + thông tin khách tại lúc checkout.
// Nó đi cùng intent trong processor metadata vì order chỉ được tạo sau khi thanh toán thành công.
type CheckoutSnapshot struct {
	Customer orderModel.CustomerSnapshot `json:"customer"`
	Shipping orderModel.ShippingSnapshot `json:"shipping"`
	Items    []CheckoutItem              `json:"items"`
}

const (
	metaSource     = "source"
	metaUserID     = "user_id"
	prefixCustomer = "customer"
	prefixShipping = "shipping"
	prefixItems    = "items"

	sourceValue = "roastery"
)

// EncodeMetadata chia snapshot thành các value <= MetadataValueMaxLen ký tự:
// customer_0.., shipping_0.., items_0.. (JSON cắt theo rune).
func EncodeMetadata(snap CheckoutSnapshot, userID *uuid.UUID) (map[string]string, error) {
	meta := map[string]string{metaSource: sourceValue}
	if userID != nil {
		meta[metaUserID] = userID.String()
	}

	parts := []struct {
		prefix string
		value  any
	}{
		{prefixCustomer, snap.Customer},
		{prefixShipping, snap.Shipping},
		{prefixItems, snap.Items},
	}

	for _, p := range parts {
		raw, err := json.Marshal(p.value)
		if err != nil {
			return nil, fmt.Errorf("encode %s metadata: %w", p.prefix, err)
		}
		for i, c := range chunk(string(raw), MetadataValueMaxLen) {
			meta[chunkKey(p.prefix, i)] = c
		}
	}

	if len(meta) > MetadataMaxKeys {
		return nil, fmt.Errorf("checkout snapshot needs %d metadata keys, max %d", len(meta), MetadataMaxKeys)
	}
	return meta, nil
}

// DecodeMetadata ghép lại snapshot từ metadata.
// Phần nào vắng mặt hoàn toàn thì để zero value; JSON hỏng là ErrMalformedNotification.
func DecodeMetadata(meta map[string]string) (CheckoutSnapshot, *uuid.UUID, error) {
	var snap CheckoutSnapshot

	targets := []struct {
		prefix string
		dst    any
	}{
		{prefixCustomer, &snap.Customer},
		{prefixShipping, &snap.Shipping},
		{prefixItems, &snap.Items},
	}

	for _, t := range targets {
		raw, ok := joinChunks(meta, t.prefix)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(raw), t.dst); err != nil {
			return CheckoutSnapshot{}, nil, fmt.Errorf("%w: %s metadata: %v", ErrMalformedNotification, t.prefix, err)
		}
	}

	var userID *uuid.UUID
	if v, ok := meta[metaUserID]; ok {
		if id, err := uuid.Parse(v); err == nil {
			userID = &id
		}
	}

	return snap, userID, nil
}

func chunkKey(prefix string, i int) string {
	return prefix + "_" + strconv.Itoa(i)
}

func chunk(s string, size int) []string {
	runes := []rune(s)
	out := make([]string, 0, len(runes)/size+1)
	for len(runes) > size {
		out = append(out, string(runes[:size]))
		runes = runes[size:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func joinChunks(meta map[string]string, prefix string) (string, bool) {
	var raw string
	found := false
	for i := 0; ; i++ {
		v, ok := meta[chunkKey(prefix, i)]
		if !ok {
			break
		}
		raw += v
		found = true
	}
	return raw, found
}
