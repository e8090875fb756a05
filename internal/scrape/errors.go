package scrape

import "errors"

// ErrUnknownDistFile is returned when none of an embed page's dist files is
// allowed by MainFileRules. The scrape of that page stops.
var ErrUnknownDistFile = errors.New("unknown dist file, please provide the dist file rules")
