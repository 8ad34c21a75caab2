// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package reservoir - the ephemeral intake queue
//
// Submitted transfers wait here, in memory only, until the scheduler
// hands them to the processor.  Processed entries linger until the
// retention sweeper removes them; nothing in this package is ever
// written to disk.
package reservoir
