// Package codec implements the binary wire format used to store item
// payloads and price vectors as opaque blobs. Blobs are Base64 text so they
// fit the TEXT columns of the shops schema. The format is self-consistent
// and versioned; it is not compatible with any other system's encoding.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/nouridin/supershop/internal/domain"
)

// formatVersion is the first byte of every encoded blob.
const formatVersion byte = 1

// maxListLen bounds decoded list sizes so a corrupt length prefix cannot
// trigger a huge allocation.
const maxListLen = 1 << 16

// EncodeStack encodes a single item stack as a Base64 blob.
func EncodeStack(stack domain.ItemStack) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte(formatVersion)
	if err := writeStack(&buf, stack); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeStack decodes a blob produced by EncodeStack. An empty blob is an
// error: single-stack columns are never empty in a well-formed row.
func DecodeStack(data string) (domain.ItemStack, error) {
	raw, err := decodeBase64(data)
	if err != nil {
		return domain.ItemStack{}, err
	}
	if len(raw) == 0 {
		return domain.ItemStack{}, fmt.Errorf("empty item blob")
	}
	r := bytes.NewReader(raw)
	if err := readVersion(r); err != nil {
		return domain.ItemStack{}, err
	}
	return readStack(r)
}

// EncodeStacks encodes a length-prefixed list of item stacks. An empty list
// encodes to the empty string.
func EncodeStacks(stacks []domain.ItemStack) (string, error) {
	if len(stacks) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	buf.WriteByte(formatVersion)
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(stacks))); err != nil {
		return "", err
	}
	for _, stack := range stacks {
		if err := writeStack(&buf, stack); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeStacks decodes a blob produced by EncodeStacks. Empty or absent
// input yields an empty list, never an error.
func DecodeStacks(data string) ([]domain.ItemStack, error) {
	raw, err := decodeBase64(data)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []domain.ItemStack{}, nil
	}
	r := bytes.NewReader(raw)
	if err := readVersion(r); err != nil {
		return nil, err
	}
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("read list length: %w", err)
	}
	if count > maxListLen {
		return nil, fmt.Errorf("list length %d exceeds limit", count)
	}
	stacks := make([]domain.ItemStack, 0, count)
	for i := uint32(0); i < count; i++ {
		stack, err := readStack(r)
		if err != nil {
			return nil, fmt.Errorf("stack %d: %w", i, err)
		}
		stacks = append(stacks, stack)
	}
	return stacks, nil
}

func decodeBase64(data string) ([]byte, error) {
	if data == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return raw, nil
}

func readVersion(r *bytes.Reader) error {
	v, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if v != formatVersion {
		return fmt.Errorf("unsupported blob version %d", v)
	}
	return nil
}

func writeStack(w *bytes.Buffer, stack domain.ItemStack) error {
	if err := writePayload(w, stack.Payload); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, int32(stack.Count))
}

func readStack(r *bytes.Reader) (domain.ItemStack, error) {
	payload, err := readPayload(r)
	if err != nil {
		return domain.ItemStack{}, err
	}
	var count int32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return domain.ItemStack{}, fmt.Errorf("read count: %w", err)
	}
	return domain.ItemStack{Payload: payload, Count: int(count)}, nil
}

func writePayload(w *bytes.Buffer, p domain.ItemPayload) error {
	if err := writeString(w, p.Kind); err != nil {
		return err
	}
	if err := writeString(w, p.DisplayName); err != nil {
		return err
	}
	if len(p.Lore) > math.MaxUint16 {
		return fmt.Errorf("lore too long: %d lines", len(p.Lore))
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(p.Lore))); err != nil {
		return err
	}
	for _, line := range p.Lore {
		if err := writeString(w, line); err != nil {
			return err
		}
	}
	if err := writeBytes(w, p.Meta); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, int32(p.StackLimit))
}

func readPayload(r *bytes.Reader) (domain.ItemPayload, error) {
	var p domain.ItemPayload
	var err error
	if p.Kind, err = readString(r); err != nil {
		return p, fmt.Errorf("read kind: %w", err)
	}
	if p.DisplayName, err = readString(r); err != nil {
		return p, fmt.Errorf("read display name: %w", err)
	}
	var loreLen uint16
	if err := binary.Read(r, binary.BigEndian, &loreLen); err != nil {
		return p, fmt.Errorf("read lore length: %w", err)
	}
	for i := uint16(0); i < loreLen; i++ {
		line, err := readString(r)
		if err != nil {
			return p, fmt.Errorf("read lore line %d: %w", i, err)
		}
		p.Lore = append(p.Lore, line)
	}
	if p.Meta, err = readBytes(r); err != nil {
		return p, fmt.Errorf("read meta: %w", err)
	}
	var limit int32
	if err := binary.Read(r, binary.BigEndian, &limit); err != nil {
		return p, fmt.Errorf("read stack limit: %w", err)
	}
	p.StackLimit = int(limit)
	return p, nil
}

func writeString(w *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("string too long: %d bytes", len(s))
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeBytes(w *bytes.Buffer, b []byte) error {
	if len(b) > math.MaxUint16 {
		return fmt.Errorf("byte field too long: %d bytes", len(b))
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
