package repository

import "errors"

// Errores que los adaptadores de persistencia devuelven para que la aplicación decida.
var (
	// ErrDuplicate violación de una restricción única (dedup id, (bar, fecha), (turno, usuario)).
	ErrDuplicate = errors.New("registro duplicado")
	// ErrStaleWrite la fila cambió de estado entre la lectura y la escritura (0 filas afectadas).
	ErrStaleWrite = errors.New("estado modificado concurrentemente")
	// ErrSerialization fallo de serialización o deadlock reportado por la BD.
	ErrSerialization = errors.New("fallo de serialización")
)
