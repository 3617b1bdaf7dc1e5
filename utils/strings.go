package utils

import (
	"strings"

	"github.com/goccy/go-json"
)

func StructToBytes(s interface{}) ([]byte, error) {
	return json.Marshal(s)
}

func BytesToStruct(data []byte, s interface{}) error {
	return json.Unmarshal(data, s)
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
