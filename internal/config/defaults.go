package config

const (
	defaultDestinationDir = "~/library"
	defaultLedgerPath     = "~/.local/share/mediasort/ledger.db"
	defaultLogDir         = "~/.local/share/mediasort/logs"
	defaultLockPath       = "~/.local/share/mediasort/mediasort.lock"
	defaultMoviesDir      = "movies"
	defaultTVDir          = "tv"
	defaultTMDBLanguage   = "en-US"
	defaultTMDBBaseURL    = "https://api.themoviedb.org/3"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"

	defaultMoviePattern = `^(?P<title>.+?)[. _-]+\(?(?P<year>(19|20)\d{2})\)?`
	defaultTVPattern    = `^(?P<title>.+?)[. _-]+[Ss](?P<season>\d{1,2})[Ee](?P<episode>\d{1,3})`

	defaultMovieTemplate  = "{title} ({year})"
	defaultTVShowTemplate = "{title}/Season {season}"

	defaultSeasonPadding  = 2
	defaultEpisodePadding = 2
)

func defaultVideoExtensions() []string {
	return []string{".mkv", ".mp4", ".avi", ".m4v", ".mov", ".wmv", ".mpg", ".mpeg", ".ts", ".webm"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DestinationDir: defaultDestinationDir,
			LedgerPath:     defaultLedgerPath,
			LogDir:         defaultLogDir,
			LockPath:       defaultLockPath,
		},
		TMDB: TMDB{
			Language: defaultTMDBLanguage,
			BaseURL:  defaultTMDBBaseURL,
		},
		Library: Library{
			MoviesDir: defaultMoviesDir,
			TVDir:     defaultTVDir,
		},
		Naming: Naming{
			MoviePattern:   defaultMoviePattern,
			TVPattern:      defaultTVPattern,
			MovieTemplate:  defaultMovieTemplate,
			TVShowTemplate: defaultTVShowTemplate,
			SeasonPadding:  defaultSeasonPadding,
			EpisodePadding: defaultEpisodePadding,
		},
		Options: Options{
			LinkFiles:       true,
			SkipExisting:    true,
			VideoExtensions: defaultVideoExtensions(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
