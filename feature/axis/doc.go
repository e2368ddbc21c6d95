// Package axis adapts ERP analytic axis values (projects, plates, subposts)
// to the platform's per-company axis collections.
package axis
