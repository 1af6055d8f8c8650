// Copyright 2026 The trackfs Authors
// SPDX-License-Identifier: Apache-2.0

package tagset

import (
	"reflect"
	"testing"
)

func TestCaseInsensitiveGet(t *testing.T) {
	s := New()
	s.Set("Artist", "Alice")

	if v, ok := s.Get("ARTIST"); !ok || v != "Alice" {
		t.Fatalf("Get(ARTIST) = %q, %v; want Alice, true", v, ok)
	}
	if v, ok := s.Get("artist"); !ok || v != "Alice" {
		t.Fatalf("Get(artist) = %q, %v; want Alice, true", v, ok)
	}
}

func TestSetPreservesFirstCasing(t *testing.T) {
	s := New()
	s.Set("Artist", "Alice")
	s.Set("ARTIST", "Bob")

	if got := s.Keys(); !reflect.DeepEqual(got, []string{"Artist"}) {
		t.Fatalf("Keys() = %v, want [Artist]", got)
	}
	if v, _ := s.Get("artist"); v != "Bob" {
		t.Fatalf("Get(artist) = %q, want Bob", v)
	}
}

func TestAddAccumulatesMultiValue(t *testing.T) {
	s := New()
	s.Add("PERFORMER", "Bob")
	s.Add("performer", "Carol")

	values, ok := s.Values("PERFORMER")
	if !ok {
		t.Fatal("Values(PERFORMER) missing")
	}
	if !reflect.DeepEqual(values, []string{"Bob", "Carol"}) {
		t.Fatalf("Values(PERFORMER) = %v, want [Bob Carol]", values)
	}
}

func TestDeleteRemovesKey(t *testing.T) {
	s := New()
	s.Set("COMMENT", "x")
	s.Set("TITLE", "y")
	s.Delete("comment")

	if s.Has("COMMENT") {
		t.Fatal("COMMENT still present after Delete")
	}
	if got := s.Keys(); !reflect.DeepEqual(got, []string{"TITLE"}) {
		t.Fatalf("Keys() = %v, want [TITLE]", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New()
	s.Add("GENRE", "Rock")

	clone := s.Clone()
	clone.Add("GENRE", "Pop")

	original, _ := s.Values("GENRE")
	if !reflect.DeepEqual(original, []string{"Rock"}) {
		t.Fatalf("original mutated by clone: %v", original)
	}
	cloned, _ := clone.Values("GENRE")
	if !reflect.DeepEqual(cloned, []string{"Rock", "Pop"}) {
		t.Fatalf("clone = %v, want [Rock Pop]", cloned)
	}
}

func TestSplitMultiValue(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Bob; Carol", []string{"Bob", "Carol"}},
		{"Bob;Carol;  Dave ", []string{"Bob", "Carol", "Dave"}},
		{"Solo", []string{"Solo"}},
		{" ; ", nil},
	}
	for _, tt := range tests {
		got := SplitMultiValue(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("SplitMultiValue(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitMultiValue(%q) = %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}
