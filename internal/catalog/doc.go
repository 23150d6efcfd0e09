// Package catalog loads and watches the YAML target catalog: the sources
// to collect from and the items to collect per source.
package catalog
