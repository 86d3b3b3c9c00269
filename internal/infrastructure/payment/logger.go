package payment

import "tg_listing/pkg/contextx"

var logger = contextx.LoggerFromContextOrDefault
