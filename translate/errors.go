// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package translate

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

func outOfRange(format string, args ...interface{}) error {
	return errors.E(errors.Invalid, "translate: out of range: "+fmt.Sprintf(format, args...))
}

func noneKept() error {
	return errors.E(errors.Precondition, "translate: no indices kept")
}
