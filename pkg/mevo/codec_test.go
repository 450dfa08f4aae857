// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import "testing"

func TestInt16RoundTrip(t *testing.T) {
	for _, val := range []int16{0, 1, -1, 0x7FFF, -0x8000} {
		buf := writeInt16(nil, val)
		got, err := readInt16(buf, 0)
		if err != nil {
			t.Fatalf("readInt16(%d): %v", val, err)
		}
		if got != val {
			t.Errorf("round trip %d: got %d", val, got)
		}
	}
}

func TestInt24RoundTrip(t *testing.T) {
	for _, val := range []int32{0, 1, -1, 0x7F_FFFF, -0x80_0000, 42, -42} {
		buf := writeInt24(nil, val)
		got, err := readInt24(buf, 0)
		if err != nil {
			t.Fatalf("readInt24(%d): %v", val, err)
		}
		if got != val {
			t.Errorf("round trip %d: got %d", val, got)
		}
	}
}

func TestInt24SignExtension(t *testing.T) {
	cases := []struct {
		data []byte
		want int32
	}{
		{[]byte{0xFF, 0xFF, 0xFF}, -1},
		{[]byte{0x80, 0x00, 0x00}, -0x80_0000},
		{[]byte{0x7F, 0xFF, 0xFF}, 0x7F_FFFF},
	}
	for _, c := range cases {
		got, err := readInt24(c.data, 0)
		if err != nil {
			t.Fatalf("readInt24: %v", err)
		}
		if got != c.want {
			t.Errorf("readInt24(%x) = %d, want %d", c.data, got, c.want)
		}
	}
}

func TestFloat40Zero(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x00, 0x00}
	got, err := readFloat40(data, 0)
	if err != nil || got != 0.0 {
		t.Fatalf("readFloat40(zero) = %v, %v", got, err)
	}
	buf := writeFloat40(nil, 0.0)
	if string(buf) != string([]byte{0, 0, 0, 0, 0}) {
		t.Errorf("writeFloat40(0.0) = % X", buf)
	}
}

func TestFloat40One(t *testing.T) {
	data := []byte{0x00, 0x01, 0x40, 0x00, 0x00}
	val, err := readFloat40(data, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := val - 1.0; diff > 1e-10 || diff < -1e-10 {
		t.Errorf("expected 1.0, got %v", val)
	}
	buf := writeFloat40(nil, 1.0)
	want := []byte{0x00, 0x01, 0x40, 0x00, 0x00}
	if !bytesEqual(buf, want) {
		t.Errorf("writeFloat40(1.0) = % X, want % X", buf, want)
	}
}

func TestFloat40_12_5(t *testing.T) {
	data := []byte{0x00, 0x04, 0x64, 0x00, 0x00}
	val, err := readFloat40(data, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := val - 12.5; diff > 1e-10 || diff < -1e-10 {
		t.Errorf("expected 12.5, got %v", val)
	}
}

func TestFloat40Negative(t *testing.T) {
	// -2.3: exp=2, mant=-4823449 (0xB66667 sign-extended)
	data := []byte{0x00, 0x02, 0xB6, 0x66, 0x67}
	val, err := readFloat40(data, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := val - (-2.3); diff > 1e-6 || diff < -1e-6 {
		t.Errorf("expected -2.3, got %v", val)
	}
}

func TestFloat40_100(t *testing.T) {
	data := []byte{0x00, 0x07, 0x64, 0x00, 0x00}
	val, err := readFloat40(data, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := val - 100.0; diff > 1e-10 || diff < -1e-10 {
		t.Errorf("expected 100.0, got %v", val)
	}
}

func TestFloat40_0_0254(t *testing.T) {
	data := []byte{0xFF, 0xFB, 0x68, 0x09, 0xE2}
	val, err := readFloat40(data, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := val - 0.0254; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("expected 0.0254, got %v", val)
	}
}

func TestFloat40RoundTrip(t *testing.T) {
	for _, val := range []float64{1.0, -1.0, 12.5, 100.0, 0.0254, -2.3, 0.001, 999.999} {
		buf := writeFloat40(nil, val)
		decoded, err := readFloat40(buf, 0)
		if err != nil {
			t.Fatal(err)
		}
		relErr := (decoded - val) / val
		if relErr < 0 {
			relErr = -relErr
		}
		if relErr > 1e-6 {
			t.Errorf("round-trip failed for %v: got %v (rel err %v)", val, decoded, relErr)
		}
	}
}

func TestUint16RoundTrip(t *testing.T) {
	for _, val := range []uint16{0, 1, 0xFFFF, 0x8000} {
		buf := writeUint16(nil, val)
		got, err := readUint16(buf, 0)
		if err != nil || got != val {
			t.Errorf("round trip %d: got %d, %v", val, got, err)
		}
	}
}

func TestInt32RoundTrip(t *testing.T) {
	for _, val := range []int32{0, 1, -1, 0x7FFFFFFF, -0x80000000} {
		buf := writeInt32(nil, val)
		got, err := readInt32(buf, 0)
		if err != nil || got != val {
			t.Errorf("round trip %d: got %d, %v", val, got, err)
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
