package core

import (
	"fmt"

	"gitvault/pkg/types"
)

// Verify 重新计算规范编码的哈希并与 id 比较
func Verify(id types.ObjectId, canonical []byte) error {
	actual := SumCanonical(canonical)
	if actual != id {
		return fmt.Errorf("%w: expected %s, got %s", ErrCorruptObject, id, actual)
	}
	return nil
}

// VerifyObject checks the hash and then the structure of the bytes.
func VerifyObject(id types.ObjectId, canonical []byte) (*Object, error) {
	if err := Verify(id, canonical); err != nil {
		return nil, err
	}
	obj, err := DecodeObject(canonical)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", id, err)
	}
	return obj, nil
}
