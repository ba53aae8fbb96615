// Package mocks holds gomock doubles for the transfer package's ports.
package mocks

//go:generate mockgen -destination=mock_directory.go -package=mocks digibank/internal/transfer Directory
