package hdf5import

// Version is the library version.
const Version = "0.3.0"
