// Package database manages the connection to the ERP MySQL database that
// supplies the source datasets for synchronization.
package database
