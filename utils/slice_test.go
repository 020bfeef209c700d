package utils

import (
	"reflect"
	"testing"
)

func TestUniqueStrings(t *testing.T) {
	got := UniqueStrings([]string{" go ", "redis", "go", "", "  ", "redis", "gin"})
	want := []string{"go", "redis", "gin"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("UniqueStrings = %v, want %v", got, want)
	}
}
