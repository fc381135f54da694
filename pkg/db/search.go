package db

import "strings"

// LikeEscape is the ESCAPE character used by the patterns built here.
const LikeEscape = `\`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePrefix lowercases term and builds a prefix pattern for LIKE ... ESCAPE.
func LikePrefix(term string) string {
	return likeReplacer.Replace(strings.ToLower(term)) + "%"
}

// LikeContains lowercases term and builds a substring pattern.
func LikeContains(term string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(term)) + "%"
}
