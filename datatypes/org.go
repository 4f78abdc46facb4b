// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// OrgSwitchRequest is the request body for POST /v1/org/switch.
type OrgSwitchRequest struct {
	OrgID string `json:"org_id" binding:"required"`
}

// OrgStateResponse reports the caller's organization scope after a switch,
// reset, or current lookup.
type OrgStateResponse struct {
	Success           bool   `json:"success"`
	HomeOrgID         string `json:"home_org_id"`
	HomeOrgName       string `json:"home_org_name"`
	ActiveOrgID       string `json:"active_org_id"`
	ActiveOrgName     string `json:"active_org_name"`
	IsPrivilegedAdmin bool   `json:"is_privileged_admin"`
	Timestamp         int64  `json:"timestamp"`
}

// NewOrgStateResponse stamps an OrgStateResponse with the current time.
func NewOrgStateResponse(homeID, homeName, activeID, activeName string, admin bool) *OrgStateResponse {
	return &OrgStateResponse{
		Success:           true,
		HomeOrgID:         homeID,
		HomeOrgName:       homeName,
		ActiveOrgID:       activeID,
		ActiveOrgName:     activeName,
		IsPrivilegedAdmin: admin,
		Timestamp:         time.Now().UnixMilli(),
	}
}
