// Package rating holds the pure parts of the league: the paired-comparison
// rating update for doubles matches and the classification of a rating into
// one of eight skill levels. Nothing in this package performs I/O.
package rating
