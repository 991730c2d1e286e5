// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds the table and column names of the portal's own database.
package schema

// ContactMessageTable represents the 'portal.contactmessage' table
type ContactMessageTable struct {
	Table     string
	ID        string
	Name      string
	Email     string
	Subject   string
	Message   string
	IPAddress string
	IsRead    string
	CreatedAt string
}

// ContactMessage is the schema definition for portal.contactmessage
var ContactMessage = ContactMessageTable{
	Table:     "portal.contactmessage",
	ID:        "id",
	Name:      "name",
	Email:     "email",
	Subject:   "subject",
	Message:   "message",
	IPAddress: "ipaddress",
	IsRead:    "isread",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t ContactMessageTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Email, t.Subject, t.Message, t.IPAddress, t.IsRead, t.CreatedAt,
	}
}
