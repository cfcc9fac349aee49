// Package models defines the client-side data shapes exchanged with the MDD
// backend: users, themes, subscriptions, articles and comments, plus the
// session pair and the loosely-typed subscription records the backend
// returns.
package models
