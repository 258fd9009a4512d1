package sitecfg

import "errors"

var ErrCatalogRead = errors.New("failed to read site catalog")
var ErrCatalogParse = errors.New("failed to parse site catalog")
var ErrCatalogInvalid = errors.New("invalid site catalog")
