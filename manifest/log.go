package manifest

import "github.com/tliron/commonlog"

var logger = commonlog.GetLogger("bindlist.manifest")
