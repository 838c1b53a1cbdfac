// Package render draws the choropleth map and scatter chart as PNG images
// using gonum/plot.
//
// Figure sizes are given in inches; the pixel size of an image is the
// inch size multiplied by its DPI. Rendering is stateless and every call
// produces a new image.
package render
