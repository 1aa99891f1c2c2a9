package memory

import (
	"errors"

	"github.com/ezrec/rcu51/translate"
)

var f = translate.From

var (
	ErrImageSize    = errors.New(f("image larger than ROM"))
	ErrSnapshotSize = errors.New(f("snapshot size does not match layout"))
)
