package server

import "tg_listing/pkg/contextx"

var logger = contextx.LoggerFromContextOrDefault
