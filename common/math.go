package common

import (
	"math"
	"unsafe"
)

// Mat4 is a 4x4 float32 matrix stored in column-major order (OpenGL/WebGPU convention).
// Elements 12, 13 and 14 hold the translation.
type Mat4 [16]float32

// Identity4 returns the 4x4 identity matrix.
//
// Returns:
//   - Mat4: the identity matrix
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// FillIdentity sets every matrix in mats to the identity matrix.
//
// Parameters:
//   - mats: the matrices to reset
func FillIdentity(mats []Mat4) {
	id := Identity4()
	for i := range mats {
		mats[i] = id
	}
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order (OpenGL/WebGPU convention).
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// Mul returns m * b.
//
// Parameters:
//   - b: the right-hand matrix
//
// Returns:
//   - Mat4: the product m * b
func (m Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	Mul4(out[:], m[:], b[:])
	return out
}

// Invert4 computes the inverse of a 4x4 column-major matrix using the Laplace
// expansion (cofactor) method. If the matrix is singular (determinant ≈ 0) the
// output is left unchanged and the function returns false.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - m: source matrix (16 elements, column-major)
//
// Returns:
//   - bool: true if the matrix was successfully inverted, false if singular
func Invert4(out, m []float32) bool {
	// 2x2 sub-determinants of the upper-left and lower-right quadrants.
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[6] - m[4]*m[2]
	s2 := m[0]*m[7] - m[4]*m[3]
	s3 := m[1]*m[6] - m[5]*m[2]
	s4 := m[1]*m[7] - m[5]*m[3]
	s5 := m[2]*m[7] - m[6]*m[3]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[9]*m[15] - m[13]*m[11]
	c3 := m[9]*m[14] - m[13]*m[10]
	c2 := m[8]*m[15] - m[12]*m[11]
	c1 := m[8]*m[14] - m[12]*m[10]
	c0 := m[8]*m[13] - m[12]*m[9]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 || math.IsNaN(float64(det)) {
		return false
	}

	invDet := 1.0 / det

	out[0] = (m[5]*c5 - m[6]*c4 + m[7]*c3) * invDet
	out[1] = (-m[1]*c5 + m[2]*c4 - m[3]*c3) * invDet
	out[2] = (m[13]*s5 - m[14]*s4 + m[15]*s3) * invDet
	out[3] = (-m[9]*s5 + m[10]*s4 - m[11]*s3) * invDet

	out[4] = (-m[4]*c5 + m[6]*c2 - m[7]*c1) * invDet
	out[5] = (m[0]*c5 - m[2]*c2 + m[3]*c1) * invDet
	out[6] = (-m[12]*s5 + m[14]*s2 - m[15]*s1) * invDet
	out[7] = (m[8]*s5 - m[10]*s2 + m[11]*s1) * invDet

	out[8] = (m[4]*c4 - m[5]*c2 + m[7]*c0) * invDet
	out[9] = (-m[0]*c4 + m[1]*c2 - m[3]*c0) * invDet
	out[10] = (m[12]*s4 - m[13]*s2 + m[15]*s0) * invDet
	out[11] = (-m[8]*s4 + m[9]*s2 - m[11]*s0) * invDet

	out[12] = (-m[4]*c3 + m[5]*c1 - m[6]*c0) * invDet
	out[13] = (m[0]*c3 - m[1]*c1 + m[2]*c0) * invDet
	out[14] = (-m[12]*s3 + m[13]*s1 - m[14]*s0) * invDet
	out[15] = (m[8]*s3 - m[9]*s1 + m[10]*s0) * invDet

	return true
}

// Inverse returns the inverse of m.
//
// Returns:
//   - Mat4: the inverse, or the zero matrix when m is singular
//   - bool: false if m is singular
func (m Mat4) Inverse() (Mat4, bool) {
	var out Mat4
	ok := Invert4(out[:], m[:])
	return out, ok
}

// Translate builds a translation matrix.
func Translate(x, y, z float32) Mat4 {
	m := Identity4()
	m[12], m[13], m[14] = x, y, z
	return m
}

// Scale builds a non-uniform scale matrix.
func Scale(x, y, z float32) Mat4 {
	m := Identity4()
	m[0], m[5], m[10] = x, y, z
	return m
}

// RotateX builds a right-handed rotation of rad radians around the X axis.
func RotateX(rad float32) Mat4 {
	c, s := cosSin(rad)
	m := Identity4()
	m[5], m[6] = c, s
	m[9], m[10] = -s, c
	return m
}

// RotateY builds a right-handed rotation of rad radians around the Y axis.
func RotateY(rad float32) Mat4 {
	c, s := cosSin(rad)
	m := Identity4()
	m[0], m[2] = c, -s
	m[8], m[10] = s, c
	return m
}

// RotateZ builds a right-handed rotation of rad radians around the Z axis.
func RotateZ(rad float32) Mat4 {
	c, s := cosSin(rad)
	m := Identity4()
	m[0], m[1] = c, s
	m[4], m[5] = -s, c
	return m
}

// DegToRad converts degrees to radians.
func DegToRad(deg float32) float32 {
	return deg * math.Pi / 180
}

// TranslationOnly returns an identity matrix carrying only the translation column of m.
//
// Parameters:
//   - m: the source matrix
//
// Returns:
//   - Mat4: identity rotation/scale with m's translation
func TranslationOnly(m Mat4) Mat4 {
	return Translate(m[12], m[13], m[14])
}

// TransformPoint applies m to the point p (w = 1).
func (m Mat4) TransformPoint(p [3]float32) [3]float32 {
	return [3]float32{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// ApproxEqual reports whether every element of m is within tol of the matching element of b.
//
// Parameters:
//   - b: the matrix to compare against
//   - tol: maximum absolute difference per element
//
// Returns:
//   - bool: true if the matrices match within tol
func (m Mat4) ApproxEqual(b Mat4, tol float32) bool {
	for i := range m {
		d := m[i] - b[i]
		if d > tol || d < -tol {
			return false
		}
	}
	return true
}

// IsIdentity reports whether m is the identity matrix within tol.
func (m Mat4) IsIdentity(tol float32) bool {
	return m.ApproxEqual(Identity4(), tol)
}

func cosSin(rad float32) (float32, float32) {
	return float32(math.Cos(float64(rad))), float32(math.Sin(float64(rad)))
}
