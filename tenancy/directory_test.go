// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tenancy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveAssignmentFilter_BuildsConjunction(t *testing.T) {
	built := activeAssignmentFilter("subj-42").Build()

	assert.Equal(t, "And", built.Operator)
	require.Len(t, built.Operands, 2)

	subject := built.Operands[0]
	assert.Equal(t, []string{"subject_id"}, subject.Path)
	assert.Equal(t, "Equal", subject.Operator)
	require.NotNil(t, subject.ValueString)
	assert.Equal(t, "subj-42", *subject.ValueString)

	active := built.Operands[1]
	assert.Equal(t, []string{"active"}, active.Path)
	assert.Equal(t, "Equal", active.Operator)
	require.NotNil(t, active.ValueBoolean)
	assert.True(t, *active.ValueBoolean)
}
