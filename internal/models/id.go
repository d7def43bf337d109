package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID — идентификатор сущности API. Бэкенд присылает идентификаторы то числом,
// то строкой, поэтому внутри ID всегда строка, а числовые значения
// сериализуются обратно числом.
type ID string

// String возвращает строковое представление идентификатора.
func (id ID) String() string { return string(id) }

// IsZero сообщает, что идентификатор не задан.
func (id ID) IsZero() bool { return id == "" }

// UnmarshalJSON принимает строку, число или null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("models.ID: unsupported value %s", data)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON пишет целые идентификаторы числом, остальные строкой.
func (id ID) MarshalJSON() ([]byte, error) {
	if isInteger(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isInteger(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
