// Package storage provides persistent storage for the Tushlik bot.
// It uses BadgerDB as the embedded database and round-trips the full state
// snapshot on every operation; there are no partial-field updates.
package storage
