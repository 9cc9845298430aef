// Package routes loads the YAML route manifest that declares every
// navigable screen kind, binds a screen factory per kind into the
// navigation resolver and mints descriptors on demand.
//
// Manifest shape:
//
//	routes:
//	  - kind: home
//	    title: Home
//	    view: {layout: list}
//	  - kind: wizard
//	    title: Wizard
//	    container: true
//	    pages: [wizard-intro]
package routes
