package operator_test

import (
	"errors"
	"testing"

	"photobooth/internal/domain/operator"
)

// TestSetPIN tests PIN hashing rules.
func TestSetPIN(t *testing.T) {
	var c operator.Credentials
	if err := c.SetPIN(""); !errors.Is(err, operator.ErrEmptyPIN) {
		t.Errorf("empty PIN: got %v", err)
	}
	if err := c.SetPIN("123"); !errors.Is(err, operator.ErrPINTooShort) {
		t.Errorf("short PIN: got %v", err)
	}
	if err := c.SetPIN("4812"); err != nil {
		t.Fatalf("SetPIN: %v", err)
	}
	if c.PINHash == "" || c.PINHash == "4812" {
		t.Error("PIN was not hashed")
	}
}

// TestCheckPIN tests verification against the stored hash.
func TestCheckPIN(t *testing.T) {
	var c operator.Credentials
	if err := c.SetPIN("4812"); err != nil {
		t.Fatalf("SetPIN: %v", err)
	}

	if err := c.CheckPIN("4812"); err != nil {
		t.Errorf("correct PIN rejected: %v", err)
	}
	if err := c.CheckPIN("0000"); !errors.Is(err, operator.ErrWrongPIN) {
		t.Errorf("wrong PIN: got %v", err)
	}

	empty := operator.Credentials{}
	if err := empty.CheckPIN("4812"); !errors.Is(err, operator.ErrWrongPIN) {
		t.Errorf("unset hash: got %v", err)
	}
}
