package listing

import "tg_listing/pkg/contextx"

var logger = contextx.LoggerFromContextOrDefault
