package ioformat

import (
	"os"

	"github.com/latticeqcd/gofix/internal/kernel"
	"github.com/latticeqcd/gofix/internal/lattice"
	"github.com/latticeqcd/gofix/internal/su3"
)

// loadQCDSTAG reads a headerless, native (little-endian on every platform
// this module targets) float64 sequence in mu-major (mu, t, z, y, x, row,
// col, re/im) order. Grounded on
// original_source/src/gaugefixing/apps/qcdstag.cpp::readQCDSTAG: unlike
// ILDG, that function indexes the output with the unrotated mu (its mu1
// rotation only appears in the write path's dead/commented branch), so no
// direction rotation is applied here.
func loadQCDSTAG(field *kernel.GaugeField, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	size := field.Size
	for mu := 0; mu < kernel.Ndim; mu++ {
		for t := 0; t < size.Nt; t++ {
			for z := 0; z < size.Nz; z++ {
				for y := 0; y < size.Ny; y++ {
					for x := 0; x < size.Nx; x++ {
						site := lattice.Site{t, x, y, z}
						var full [3][3]complex128
						for j := 0; j < 3; j++ {
							for k := 0; k < 3; k++ {
								re, err := readFloat64LE(f)
								if err != nil {
									return err
								}
								im, err := readFloat64LE(f)
								if err != nil {
									return err
								}
								full[j][k] = complex(re, im)
							}
						}
						field.SetLink(site, mu, su3.FromFull(full))
					}
				}
			}
		}
	}
	return nil
}

func saveQCDSTAG(field *kernel.GaugeField, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	size := field.Size
	for mu := 0; mu < kernel.Ndim; mu++ {
		for t := 0; t < size.Nt; t++ {
			for z := 0; z < size.Nz; z++ {
				for y := 0; y < size.Ny; y++ {
					for x := 0; x < size.Nx; x++ {
						site := lattice.Site{t, x, y, z}
						full := field.GetLink(site, mu).Full()
						for j := 0; j < 3; j++ {
							for k := 0; k < 3; k++ {
								if err := writeFloat64LE(f, real(full[j][k])); err != nil {
									return err
								}
								if err := writeFloat64LE(f, imag(full[j][k])); err != nil {
									return err
								}
							}
						}
					}
				}
			}
		}
	}
	return nil
}
