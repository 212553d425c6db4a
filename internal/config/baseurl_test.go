package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"https://sandbox-api.okto.tech/", "https://sandbox-api.okto.tech"},
		{"http://10.0.0.5:8080", "http://10.0.0.5:8080"},
		{"apigw.okto.tech", "https://apigw.okto.tech"},
		{"localhost:3000", "http://localhost:3000"},
		{"api.localhost", "http://api.localhost"},
		{"127.0.0.1:8080/", "http://127.0.0.1:8080"},
		{"[::1]:9000", "http://[::1]:9000"},
		{"  gw.example.com//  ", "https://gw.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeBaseURL(tt.input))
		})
	}
}

func TestIsLoopback(t *testing.T) {
	assert.True(t, isLoopback("localhost"))
	assert.True(t, isLoopback("localhost:3000/api"))
	assert.True(t, isLoopback("[::1]"))
	assert.False(t, isLoopback("[2001:db8::1]:80"))
	assert.False(t, isLoopback("example.com"))
	assert.False(t, isLoopback("localhost.example.com"))
}
