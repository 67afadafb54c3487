package svc

import "errors"

var ErrNoFeedsEnabled = errors.New("no price feeds enabled")
