package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// UserID accepts both numeric and string identifiers from the API.
type UserID string

func (id *UserID) UnmarshalJSON(data []byte) error {
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
		*id = UserID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = UserID(n.String())
	return nil
}

func (id UserID) String() string {
	return string(id)
}

type User struct {
	ID        UserID   `json:"id,omitempty" yaml:"id,omitempty"`
	UserName  string   `json:"userName,omitempty" yaml:"userName,omitempty"`
	Email     string   `json:"email,omitempty" yaml:"email,omitempty"`
	Avatar    string   `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Authority []string `json:"authority,omitempty" yaml:"authority,omitempty"`
}

func (u *User) GetName() string {
	if len(u.UserName) > 0 {
		return u.UserName
	} else if len(u.Email) > 0 {
		return u.Email
	} else if len(u.ID) > 0 {
		return u.ID.String()
	}
	return "Unknown"
}

func (u *User) HasAuthority(authority string) bool {
	for _, a := range u.Authority {
		if strings.EqualFold(a, authority) {
			return true
		}
	}
	return false
}
