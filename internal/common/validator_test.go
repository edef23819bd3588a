package common

import (
	"testing"
)

func TestIsValidAPIServer(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"http://localhost:5000", true},
		{"https://api.example.com/v1", true},
		{"HTTPS://api.example.com", true},
		{"ftp://api.example.com", false},
		{"localhost:5000", false},
		{"/api", false},
		{"", false},
		{"http://", false},
	}

	for _, test := range tests {
		result := IsValidAPIServer(test.input)
		if result != test.expected {
			t.Errorf("IsValidAPIServer(%q) = %v, expected %v", test.input, result, test.expected)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"admin@example.com", true},
		{"Admin <admin@example.com>", true},
		{"admin", false},
		{"admin@", false},
		{"", false},
	}

	for _, test := range tests {
		result := IsValidEmail(test.input)
		if result != test.expected {
			t.Errorf("IsValidEmail(%q) = %v, expected %v", test.input, result, test.expected)
		}
	}
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"http://localhost:5225/home", true},
		{"/home", true},
		{"home", false},
		{"", false},
	}

	for _, test := range tests {
		result := IsValidURL(test.input)
		if result != test.expected {
			t.Errorf("IsValidURL(%q) = %v, expected %v", test.input, result, test.expected)
		}
	}
}
