package pemeta

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/elliotchance/orderedmap/v2"
)

// VersionInfo is the StringFileInfo key/value table, preserving the order
// the entries appear in the binary. Re-setting an existing key replaces
// its value without moving it.
type VersionInfo struct {
	m *orderedmap.OrderedMap[string, string]
}

func NewVersionInfo() *VersionInfo {
	return &VersionInfo{m: orderedmap.NewOrderedMap[string, string]()}
}

func (v *VersionInfo) Set(key, value string) {
	v.m.Set(key, value)
}

func (v *VersionInfo) Get(key string) (string, bool) {
	return v.m.Get(key)
}

// Lookup returns the value for key or "" when absent.
func (v *VersionInfo) Lookup(key string) string {
	value, _ := v.m.Get(key)
	return value
}

func (v *VersionInfo) Len() int {
	return v.m.Len()
}

func (v *VersionInfo) Keys() []string {
	return v.m.Keys()
}

// MarshalJSON emits the table as a JSON object in insertion order.
func (v *VersionInfo) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for el := v.m.Front(); el != nil; el = el.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(el.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(el.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
