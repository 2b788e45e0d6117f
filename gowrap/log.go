package gowrap

import "github.com/tliron/commonlog"

var logger = commonlog.GetLogger("bindlist.gowrap")
