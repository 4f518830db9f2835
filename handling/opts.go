package handling

import (
	"commerce_server/lib"
	"commerce_server/structs"
	"net/http"
	"strconv"
	"strings"
)

// ParseProductListOptions parses ?search=&page=&per_page=
func ParseProductListOptions(r *http.Request) (structs.ProductListOptions, error) {
	query := r.URL.Query()
	opts := structs.ProductListOptions{
		Search: strings.TrimSpace(query.Get("search")),
	}

	var err error
	opts.Page, opts.PerPage, err = parsePage(r)
	return opts, err
}

// ParseOrderListOptions parses ?client_name=&page=&per_page=
func ParseOrderListOptions(r *http.Request) (structs.OrderListOptions, error) {
	query := r.URL.Query()
	opts := structs.OrderListOptions{
		ClientName: strings.TrimSpace(query.Get("client_name")),
	}

	var err error
	opts.Page, opts.PerPage, err = parsePage(r)
	return opts, err
}

// parsePage reads the pagination parameters. Missing values are returned as
// zero and defaulted by the services.
func parsePage(r *http.Request) (page, perPage int, err error) {
	query := r.URL.Query()
	verr := lib.NewValidationError()

	if raw := query.Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil {
			verr.Add("page", "The page field must be an integer.")
		}
	}

	if raw := query.Get("per_page"); raw != "" {
		if perPage, err = strconv.Atoi(raw); err != nil {
			verr.Add("per_page", "The per page field must be an integer.")
		}
	}

	return page, perPage, verr.OrNil()
}
