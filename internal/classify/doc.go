// Package classify decides whether a scanned file is a movie or a television
// episode and extracts identity fields from its filename. Directory-declared
// scan profiles take precedence over filename inference; a file that matches
// neither is treated as a movie.
package classify
