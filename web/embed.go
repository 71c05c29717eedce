// Package web embeds the seed assets shipped with the binary.
package web

import "embed"

// Seed embeds the starter invoice template created for each new account.
//
//go:embed seed/*
var Seed embed.FS

// SeedInvoiceHTML returns the starter template HTML body.
func SeedInvoiceHTML() string {
	data, err := Seed.ReadFile("seed/invoice.html")
	if err != nil {
		panic(err)
	}
	return string(data)
}

// SeedInvoiceCSS returns the starter template stylesheet.
func SeedInvoiceCSS() string {
	data, err := Seed.ReadFile("seed/invoice.css")
	if err != nil {
		panic(err)
	}
	return string(data)
}
